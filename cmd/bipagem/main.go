// Package main implements the bipagem CLI.
package main

func main() {
	Execute()
}
