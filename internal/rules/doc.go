// Package rules holds the membership and eligibility rules for groups and rides.
//
// Every function takes records by value and returns updated copies; nothing here
// touches shared state, storage or the network. Callers decide which operation to
// invoke (Action tells them which one applies) and commit the returned values.
package rules
