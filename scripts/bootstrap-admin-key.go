// bootstrap-admin-key generates an admin key and the Argon2id hash to put in
// ADMIN_API_KEY_HASHES.
//
//	go run scripts/bootstrap-admin-key.go -env live -format json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/premiumgate/premiumgate/internal/auth"
)

type output struct {
	Key       string `json:"key"`
	KeyPrefix string `json:"key_prefix"`
	Hash      string `json:"hash"`
}

func main() {
	var (
		env    = flag.String("env", auth.EnvLive, "Key environment: live or test")
		format = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *env != auth.EnvLive && *env != auth.EnvTest {
		fmt.Fprintln(os.Stderr, "invalid env; use live or test")
		os.Exit(1)
	}

	generated, err := auth.GenerateAdminKey(*env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate admin key:", err)
		os.Exit(1)
	}

	out := output{
		Key:       generated.Plaintext,
		KeyPrefix: generated.Prefix,
		Hash:      generated.Hash,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println("key: ", out.Key)
		fmt.Println("hash:", out.Hash)
		fmt.Fprintln(os.Stderr, "Store the key now; only the hash belongs in ADMIN_API_KEY_HASHES.")
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}
