package main

import "backoffice-system/internal/cmd"

func main() {
	cmd.Execute()
}
