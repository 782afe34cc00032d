// Command imposter plays a pass-and-play round in the terminal. It needs no
// server: one device is handed around and each player looks at their card
// in turn.
package main

import "github.com/spf13/cobra"

const releaseVersion = "0.1.0"

func main() {
	ctx, stop := contextWithSignals()
	defer stop()
	cobra.CheckErr(newRootCmd().ExecuteContext(ctx))
}
