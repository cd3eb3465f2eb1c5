// Package hashindex implements the attribute index: an open-addressing hash
// table that maps case-insensitive string keys to the backing-store offsets
// of every record carrying that key.
//
// # Hashing and Probing
//
// Keys are hashed with the ELF hash ([ElfHash]) over their case-folded bytes.
// Collisions are resolved with quadratic probing: attempt i visits slot
//
//	(home + (i*i+i)/2) mod capacity
//
// Capacities are drawn from an ascending ladder of primes ([Config.Primes]).
// When occupied and deleted slots reach [Config.LoadFactor] of the capacity,
// the table grows to the next prime and every entry is re-inserted with its
// accumulated offsets. Running off the end of the ladder is reported as
// [*ErrCapacityExhausted]; the table is left as it was.
//
// # Slots
//
// A slot is empty, occupied, or a tombstone left by [Table.Delete]. Lookups
// probe through tombstones and stop at the first empty slot; inserts reuse
// the first tombstone seen on the probe path.
package hashindex
