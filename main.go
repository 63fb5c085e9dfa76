package main

import "github.com/visithran/loan-management/cmd"

func main() {
	cmd.Execute()
}
