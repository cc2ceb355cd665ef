// Command matchday answers football-team chat requests through the
// classification, routing and validation pipeline.
package main

func main() {
	Execute()
}
