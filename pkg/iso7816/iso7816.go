/*
Package iso7816 implements the subset of ISO/IEC 7816-4 needed to talk to the
Japanese driver's-license IC: APDU encoding, status word analysis, and the
SELECT, READ BINARY and VERIFY command builders for that card profile.

# Exchanges

The host sends one command APDU and waits for exactly one response APDU.
Every response ends with the status word SW1 SW2:
  - 9000: the command succeeded.
  - 63CX: VERIFY failed, or was a counter query; X tries remain.
  - 61XX: success, XX more bytes are waiting for GET RESPONSE (T=0).
  - 6CXX: Le was wrong, XX is the length the card can return (T=0).
  - anything else in 62..6F: a warning or an error (see StatusWord.Verbose).

# Usage Example: Reading a transparent file

	cls, _ := iso7816.NewClass(0x00)
	client := iso7816.NewClient(card, iso7816.WithoutAutoResponse())

	if _, err := client.Send(iso7816.SelectMF(cls)); err != nil {
	    log.Fatal(err)
	}

	trace, err := client.Send(iso7816.ReadBinary(cls, 0, 17))
	if err != nil {
	    log.Fatal(err)
	}

	if trace.IsSuccess() {
	    fmt.Printf("EF content: %X\n", trace.Final().Data)
	}
*/
package iso7816
