package main

import "github.com/BKH516/sahatu-admin-console/cmd/adminctl/cmd"

func main() {
	cmd.Execute()
}
