package main

import "github.com/mcoot/s3arena/internal/cli"

func main() {
	cli.Execute()
}
