// internal/di/container.go
package di

import (
	"fmt"
	"sort"
	"sync"
)

// Service names registered by app.InitServices.
const (
	ServiceConfig     = "config"
	ServiceLogger     = "logger"
	ServiceMetrics    = "metrics"
	ServiceBrowser    = "browser"
	ServiceGenerator  = "generator"
	ServiceExtractor  = "extractor"
	ServiceAnalyzer   = "analyzer"
	ServiceCritique   = "critique"
	ServiceProgress   = "progress"
	ServiceCache      = "cache"
	ServiceRenderer   = "renderer"
	ServiceScorer     = "scorer"
	ServiceTextClient = "text_client"
)

// Container 是一个简单的依赖注入容器
type Container struct {
	services map[string]interface{}
	mutex    sync.RWMutex
}

var (
	globalContainer *Container
	once            sync.Once
)

// NewContainer 创建一个新的依赖注入容器
func NewContainer() *Container {
	return &Container{services: make(map[string]interface{})}
}

// GetContainer 获取全局容器实例
func GetContainer() *Container {
	once.Do(func() {
		globalContainer = NewContainer()
	})
	return globalContainer
}

// Register 在容器中注册一个服务实例
func (c *Container) Register(name string, service interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.services[name] = service
}

// Get 从容器中获取一个服务实例
func (c *Container) Get(name string) interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.services[name]
}

// Has 检查容器中是否存在指定名称的服务
func (c *Container) Has(name string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, exists := c.services[name]
	return exists
}

// Names returns the registered service names in sorted order.
func (c *Container) Names() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve fetches name and asserts it to T.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	raw := c.Get(name)
	if raw == nil {
		return zero, fmt.Errorf("service %q is not registered", name)
	}
	svc, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("service %q has type %T, want %T", name, raw, zero)
	}
	return svc, nil
}

// MustResolve is Resolve for wiring code that cannot continue without the service.
func MustResolve[T any](c *Container, name string) T {
	svc, err := Resolve[T](c, name)
	if err != nil {
		panic(err)
	}
	return svc
}
