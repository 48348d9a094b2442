/*
Package custody defines the interfaces shared by every part of the vault chain:
storage, transactions, handlers and decorators, conditions and addresses, and
the context helpers used to pass block information down to handlers.

Extensions live under x/. The vault state machine itself is x/vault; x/sigs and
x/cash provide the signature witnesses and value transfers it relies on.
*/
package custody
