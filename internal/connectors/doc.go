// Package connectors holds the adapters that read documents from where they
// live. The filesystem connector walks registered folders, resolves
// file:// locations and watches folders for changes.
package connectors
