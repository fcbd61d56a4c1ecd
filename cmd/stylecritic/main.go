// Package main provides the stylecritic command line.
package main

func main() {
	Execute()
}
