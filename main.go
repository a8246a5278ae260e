package main

import "github.com/frahmantamala/construction-crm/cmd"

func main() {
	cmd.Execute()
}
