/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension keeps a single configuration object under the "_c:<package>"
key. The configuration is loaded from the "conf" section of the genesis file
and can later be changed by its owner with an update message handled by
UpdateConfigurationHandler.
*/
package gconf
