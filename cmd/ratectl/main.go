package main

import "github.com/AiBunty/BoxCostPro-sub007/cmd/ratectl/cmd"

func main() {
	cmd.Execute()
}
