package main

import "github.com/dbsmedya/gocatalog/cmd/gocatalog/cmd"

func main() {
	cmd.Execute()
}
