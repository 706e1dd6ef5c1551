// Package workerpool runs trampoline steps on named teams of worker
// goroutines.
//
// A worker takes a Step from its team queue and keeps running the steps it
// returns for as long as they belong to the same team. A step for another
// team is handed off through that team's queue; the queue lock is the
// memory barrier between the two workers.
package workerpool
