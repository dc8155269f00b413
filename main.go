package main

import "askpdf/cmd"

func main() {
	cmd.Execute()
}
