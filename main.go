package main

import "campus-events-backend/cmd"

func main() {
	cmd.Execute()
}
