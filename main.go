// SPDX-License-Identifier: MPL-2.0

package main

import cmd "distrocheck-cli/cmd/distrocheck"

func main() {
	cmd.Execute()
}
