// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/vivi-desktop/vivi/cmd/vivi"

func main() {
	cmd.Execute()
}
