// Package luaplug runs Lua plugin scripts behind the plugin lifecycle
// contract. Each plugin gets its own sandboxed interpreter: io, os, debug
// and package are never opened, so scripts can declare extensions and
// react to lifecycle hooks but cannot touch the host system.
//
// A script declares its extensions by defining a global on_load function
// that returns an array of declaration tables:
//
//	function on_load()
//	  return {
//	    {
//	      id = "sketch.line",
//	      surface = "toolbar",
//	      label = "Line",
//	      group = "sketch",
//	      render = function(meta)
//	        return { title = meta.label, lines = { "/" } }
//	      end,
//	      on_activate = function() ... end,
//	    },
//	  }
//	end
//
// The optional globals on_enable, on_disable, on_uninstall and
// on_settings_change map to the corresponding lifecycle hooks.
package luaplug
