// Package votersignup owns voter identity for an election: access-code
// authentication at voting machines, the remote signup variants (access
// code, account number, SMS confirmation), voter registration records, and
// the SMS notification outbox. Ballot casting itself lives in the
// ballot-engine service; this service only decides who may start voting.
package votersignup
