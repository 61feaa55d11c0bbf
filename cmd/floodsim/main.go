// Command floodsim simulates controlled flooding over a random network.
package main

import "github.com/sarchlab/floodsim/cmd"

func main() {
	cmd.Execute()
}
