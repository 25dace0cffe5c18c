// Package jdl reads the IC chip of a Japanese driver's license.
//
// A session selects the common data element, reads the PIN1 retry counter,
// verifies PIN1, then reads the printed items of the license (DF1/EF01).
// With PIN2 it also reads the registered domicile (DF1/EF02).
//
// Example:
//
//	res, err := jdl.Run(ctx, transport, "1234", nil)
//	if errors.Is(err, jdl.ErrVerificationFailed) {
//		// wrong PIN; the card decremented its counter
//	}
//	fmt.Println(res.Describe())
package jdl
