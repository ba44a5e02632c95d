package buildinfo

import "fmt"

// Version is the release version of the tools in this module.
const Version = "1.2.0"

func String() string {
	return fmt.Sprintf("nccombine %s", Version)
}
