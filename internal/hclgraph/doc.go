// Package hclgraph loads task graphs from HCL grid files.
//
// A grid is any number of .hcl files containing the top-level blocks
// task, resource, supervision and escalation:
//
//	task "fetch" {
//	  handler    = "http_request"
//	  team       = "io"
//	  next       = "store"
//	  uses       = ["client"]
//	  supervised = ["tx"]
//
//	  on_escalation "http" {
//	    task = "retry_later"
//	  }
//
//	  arguments {
//	    url = "https://example.com"
//	  }
//	}
//
//	resource "client" {
//	  handler = "http_client"
//	  scope   = "thread"
//	}
//
//	supervision "tx" {
//	  handler  = "sqlite_tx"
//	  strategy = "enforce"
//	}
//
//	escalation "*" {
//	  task = "report"
//	}
package hclgraph
