// Command ttlrenew renews the TTL of Redis keys that are close to expiry.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
