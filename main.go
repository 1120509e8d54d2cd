package main

import "github.com/thereayou/study-hub/cmd/server"

func main() {
	server.NewServer().Run()
}
