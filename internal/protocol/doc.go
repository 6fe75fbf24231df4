// Package protocol implements the Treasure Hunt wire format: line framing,
// command parsing and the fixed server replies.
//
// Control traffic is UTF-8 text, one command or status per "\n"-terminated
// line. Payload bytes follow a TREASURE command (client to server) or a
// READY reply (server to client) immediately and are length-delimited by
// the size announced on that line. Multi-line replies (the greeting banner
// and the MAP listing) end with an empty line.
//
//	C: TREASURE notes.txt 5 2cf24dba...9824\n hello
//	S: TREASURE BURIED! (notes.txt)\n
//	C: REVEAL notes.txt 2\n
//	S: READY 5 2cf24dba...9824\n llo
//	C: MAP\n
//	S: notes.txt\n\n
//	C: ENDQUEST\n
//	S: QUEST ENDED! Safe travels, adventurer.\n
package protocol
