/*
Package cash keeps a balance of the native token for every address and
moves value between them.

There is no logic in the token, except that the balance of any wallet may
not go below zero or overflow. Thus, this implementation is referred to as
cash. Simple and safe.

Amounts are counted in base units. Human readable representations (genesis
files, logs) use a decimal notation with AmountFractionalDigits digits after
the separator.
*/
package cash
