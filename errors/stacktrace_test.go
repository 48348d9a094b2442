package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStackTrace(t *testing.T) {
	cases := map[string]struct {
		err       error
		wantError string
	}{
		"Wrap gives us a stacktrace": {
			err:       Wrap(ErrDuplicate, "name"),
			wantError: "name: duplicate",
		},
		"Wrapping stderr gives us a stacktrace": {
			err:       Wrap(fmt.Errorf("foo"), "standard"),
			wantError: "standard: foo",
		},
		"Wrapping stdlib errors": {
			err:       Wrapf(errors.New("bar"), "pkg %d", 1),
			wantError: "pkg 1: bar",
		},
	}

	const thisTest = "errors.TestStackTrace"

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.wantError, tc.err.Error())
			assert.NotNil(t, stackTrace(tc.err))

			fullStack := fmt.Sprintf("%+v", tc.err)
			if !strings.Contains(fullStack, thisTest) {
				t.Logf("Stack trace below\n----%s\n----", fullStack)
				t.Error("full stack trace should contain this test function")
			}
			assert.True(t, strings.HasPrefix(fullStack, tc.wantError))

			tinyStack := fmt.Sprintf("%v", tc.err)
			assert.Equal(t, tc.wantError, tinyStack)
		})
	}
}
