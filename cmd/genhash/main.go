// Command genhash prints a bcrypt hash for an AUTH_USERS entry.
//
//	genhash <password>            # prints the hash
//	genhash -user alice <password> # prints alice:<hash>:admin
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	user := flag.String("user", "", "print a full AUTH_USERS entry for this user")
	role := flag.String("role", "admin", "role of the entry: admin or viewer")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: genhash [-user name] [-role admin|viewer] <password>")
		os.Exit(2)
	}

	h, err := bcrypt.GenerateFromPassword([]byte(flag.Arg(0)), *cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *user == "" {
		fmt.Println(string(h))
		return
	}
	fmt.Printf("%s:%s:%s\n", *user, h, *role)
}
