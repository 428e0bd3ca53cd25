// Command cuetool converts, inspects and watches DJ mix cue sheets outside
// the player, and manages the projects saved in the cue database.
package main

func main() {
	Execute()
}
