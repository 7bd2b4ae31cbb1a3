// Package query answers GameSpy 4 query requests on the RakNet port of the
// server, so that server lists can read the lobby status without joining.
//
// A Responder is installed over the "raknet" network before the server starts
// listening. Query datagrams are answered directly; all other traffic is
// handed to RakNet untouched.
package query
