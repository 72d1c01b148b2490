// Package neptune provides a SPARQL client for Amazon Neptune RDF graphs.
//
// Requests are sent over HTTPS to the cluster's /sparql endpoint and, when IAM
// authentication is enabled, signed with SigV4 for the neptune-db service
// using credentials from the default AWS credential chain.
//
// A Graph also discovers the graph schema (classes and predicates) so it can
// be handed to a language model as context for query generation.
package neptune
