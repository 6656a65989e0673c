/*
Package taskid is the structured identifier of a task in a run graph.

An ID is the tuple (run id, kind, key) where key is an instruction position for
instruction tasks and a ref name for every other kind. Code inside the module
compares and indexes IDs as values; the "<run>|<kind>|<key>" string form exists
only for serialized output and is produced and parsed exclusively here.
*/
package taskid
