// Command taskcli is a terminal client for the task API.
//
//	taskcli login --email ada@example.com
//	taskcli add "Buy milk" -d "two litres"
//	taskcli list
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
