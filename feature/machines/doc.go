// Package machines provides read access to the vending machine
// directory. The directory itself is owned by the fleet-management
// subsystem; reconciliation only uses it to decorate mismatches with
// human-readable machine numbers, via a TTL-cached in-memory index.
package machines
