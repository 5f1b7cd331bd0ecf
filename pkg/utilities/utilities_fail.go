package utilities

import "github.com/Atamanov/solana-stub-prover/pkg/logger"

// FailOnError terminates the process when err is non-nil.
func FailOnError(err error, msg string) {
	if err != nil {
		logger.Default().Fatal(err, msg)
	}
}
