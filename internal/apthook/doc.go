// Package apthook implements APT's JSON hook protocol, version 0.2.
//
// APT starts the hook with an inherited socket descriptor in
// $APT_HOOK_SOCKET. Every message is a single line of JSON followed by an
// empty line. After answering the hello handshake the hook receives
// install.statistics before packages change, then install.post or
// install.fail, then bye.
//
// Hook takes a snapshot of the active boot environment on
// install.statistics with the description "before apt COMMAND TERMS" and
// points the user at that snapshot once the transaction ends.
//
// Configure APT with:
//
//	AptCli::Hooks::Install:: "/usr/sbin/beadm apt-hook";
//
// See https://salsa.debian.org/apt-team/apt/-/raw/main/doc/json-hooks-protocol.md
package apthook
