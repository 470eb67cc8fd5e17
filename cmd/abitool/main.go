// Command abitool encodes and decodes the extraData payloads carried by
// attestations, derives profile ids, and signs sign-in challenges.
//
//	abitool encode profile --nonce 1 --name Acme --members 0xa..,0xb..
//	abitool encode strategy --profile 0x.. --course 0x.. --managers 0x.. [--mint --course-id 1 --account 0x..]
//	abitool encode activity --profile 0x.. --credits 10 [...strategy flags]
//	abitool encode course --profile 0x.. --managers 0x.. --metadata name,symbol
//	abitool encode recipient --address 0x..
//	abitool decode profile|strategy|activity|course|recipient 0x<hex>
//	abitool profile-id --nonce 1 --owner 0x..
//	abitool sign --privkey <hex> --message-file challenge.txt
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "abitool:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "encode":
		if len(args) < 2 {
			return errUsage
		}
		return encode(args[1], args[2:], out)
	case "decode":
		if len(args) != 3 {
			return errUsage
		}
		return decode(args[1], args[2], out)
	case "profile-id":
		return profileID(args[1:], out)
	case "sign":
		return sign(args[1:], out)
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}
