// Package signature provides the set of known cryptomining domains and the
// loaders that build it.
//
// The set is built once before a crawl starts and is read-only afterwards,
// so it is safe for concurrent use without locking.
//
// # Source format
//
// The default source is the Disconnect tracking protection list published by
// Mozilla. It is a JSON document of the form:
//
//	{
//	  "categories": {
//	    "Cryptomining": [
//	      {"Organization": {"https://org.example/": ["miner.example", "cdn.miner.example"]}}
//	    ]
//	  }
//	}
//
// Only the array values under the selected category are used. Non-array
// values such as "performance": "true" are ignored.
package signature
