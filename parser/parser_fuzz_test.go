package parser

import (
	"context"
	"testing"
)

func FuzzParser(f *testing.F) {
	seeds := []string{
		// Basic directives
		"2014-01-01 open Assets:Checking USD",
		"2014-12-31 close Assets:Checking",
		"2014-08-09 balance Assets:Checking 100.00 USD",
		"2014-01-01 commodity HOOL",
		"2014-07-09 pad Assets:Checking Equity:Opening-Balances",
		"2014-07-09 price HOOL 579.18 USD",
		"2014-07-09 note Assets:Checking \"Called about rebate\"",
		"2014-07-09 document Assets:Checking \"statement.pdf\"",
		"2014-07-09 event \"location\" \"New York, USA\"",

		// Transactions
		"2014-05-05 * \"Cafe\" \"Coffee\"\n  Expenses:Food  4.50 USD\n  Assets:Cash",
		"2014-05-06 ! \"Pending\"\n  Expenses:Misc  50.00 USD\n  Assets:Checking  -50.00 USD",
		"2014-05-07 * \"Shares\"\n  Assets:Invest  10 HOOL {500.00 USD, 2014-05-01}\n  Assets:Cash  -5000.00 USD",
		"2014-05-08 * \"Exchange\"\n  Assets:CAD  -120.00 CAD @@ 132.00 USD\n  Assets:USD  132.00 USD",

		// Options and pragmas
		"option \"title\" \"Example\"",
		"option \"operating_currency\" \"USD\"",
		"include \"accounts.beancount\"",
		"plugin \"beancount.plugins.module\"",
		"pushtag #trip",
		"poptag #trip",

		// Metadata
		"2014-01-01 open Assets:Checking USD\n  description: \"Primary account\"\n  since: 2013-01-01",

		// Arithmetic
		"2014-08-09 balance Assets:Checking (50.00 + 50.00) USD",
		"2014-08-09 balance Assets:Checking 1 / 0 USD",

		// Errors the parser must recover from
		"2014-01-01 open NoColonHere\n2014-01-02 close Assets:Checking",
		"2014-13-45 open Assets:Checking",
		"%%%",

		// Edge cases
		"",
		"  \n\n  \n",
		"; just a comment\n",
	}

	for _, seed := range seeds {
		f.Add([]byte(seed))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("parser panicked on input %q: %v", data, r)
			}
		}()

		result := Parse(context.Background(), "fuzz", data)

		// The parser never fails outright: any input yields a result with
		// whatever directives survived and an error per fault.
		if result == nil {
			t.Fatal("Parse returned nil result")
		}
		if result.Options == nil {
			t.Error("Parse returned result without options")
		}
		for i, err := range result.Errors {
			if err == nil {
				t.Errorf("error %d is nil", i)
			}
		}
		for i, directive := range result.Directives {
			if directive == nil {
				t.Errorf("directive %d is nil", i)
			}
		}
	})
}
