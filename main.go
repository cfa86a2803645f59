package main

import "github.com/aer205/gh-issue-stats/cmd"

func main() {
	cmd.Execute()
}
