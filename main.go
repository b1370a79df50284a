package main

import "wsdrop/cmd"

func main() {
	cmd.Execute()
}
