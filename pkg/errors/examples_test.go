package errors_test

import (
	"fmt"

	"github.com/agentstation/idmend/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := errors.NewRowError("disposition", 7, "current_id", "identifier is required")

	if errors.IsConfig(err) {
		fmt.Println("ruleset rejected at row", err.Row)
	}

	// Output: ruleset rejected at row 7
}

// Example_consistencyError shows how an exchange mismatch is reported.
func Example_consistencyError() {
	var err error = errors.NewConsistencyError("forms", "T1", "P001", "P002", 2, 1)

	if errors.IsInconsistent(err) {
		fmt.Println(err)
	}

	// Output: cannot exchange P001 and P002 in forms at visit "T1": 2 rows vs 1 rows
}
