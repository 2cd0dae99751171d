// Package services implements the driving ports on top of the driven ones.
//
// FolderService keeps the watched-folder list, Indexer walks a folder and
// writes documents, embeddings and the vocabulary, and SearchService ranks
// the lexical and semantic results against a query. Reindexer and Scheduler
// keep the index current from filesystem events and on a fixed interval.
package services
