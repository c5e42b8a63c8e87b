// Package basic provides the everyday components applications build
// pages from: labels, containers, panels, borders, links and list
// views. All of them embed component.Base and follow its lifecycle
// contract.
package basic
