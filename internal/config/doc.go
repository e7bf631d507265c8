// Package config loads jsonpage.json, the project configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "site",
//	  "pages": ["pages/*.json", "pages/*.yaml"],
//	  "build": {
//	    "output": "dist",
//	    "pretty": true,
//	    "indent": 2
//	  },
//	  "dev": {
//	    "port": 3000,
//	    "host": "localhost",
//	    "watch": ["pages", "parts"],
//	    "ignore": ["*.tmp"],
//	    "hotReload": true,
//	    "pollInterval": "100ms"
//	  },
//	  "publish": {
//	    "s3": {"bucket": "my-site", "region": "eu-west-1", "prefix": "www/"}
//	  }
//	}
//
// Relative paths resolve against the directory holding the file. Command
// line flags override these values.
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pages, err := cfg.ResolvePages()
package config
