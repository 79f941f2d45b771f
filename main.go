// main.go - Application entry point
package main

import (
	"trip-heatmap/cmd"
)

func main() {
	cmd.Execute()
}
