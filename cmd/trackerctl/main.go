package main

import "github.com/Lossfunk/indiaml-tracker-sub001/internal/interfaces/cli"

func main() {
	cli.Execute()
}
