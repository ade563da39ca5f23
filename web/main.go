package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-quadtree-raytracer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	sceneDir := flag.String("scenes", "scenes", "Directory of JSON scene files")
	flag.Parse()

	// Create and start web server
	webServer := server.NewServer(*port, *sceneDir)

	log.Printf("Quadtree Raytracer Web Server")
	log.Printf("Try http://localhost:%d/api/render?spheres=2000&depth=6", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
