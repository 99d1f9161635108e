package cmd

import (
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/disiqueira/gotree"
	"github.com/fatih/color"

	"github.com/ZeroXClem/locutus/peer"
	"github.com/ZeroXClem/locutus/ring"
)

// preJoin is the actions allowed before a node joins the ring: pick a
// bootstrap peer and join, inspect the local state, or exit
func preJoin(node peer.Peer, bootstraps []ring.PeerKeyLocation) bool {
	prompt := &survey.Select{
		Message: "What do you want to do ?",
		Options: []string{
			"🔗 join the ring through a bootstrap peer",
			"🌳 show my ring view",
			"👋 exit"},
	}
	var action string
	for {
		err := survey.AskOne(prompt, &action)
		if err != nil {
			fmt.Println(err)
			return false
		}

		switch action {
		case "🔗 join the ring through a bootstrap peer":
			if node.Location() != nil {
				return true
			}
			if err := joinRing(node, bootstraps); err != nil {
				color.Red("join failed: %v", err)
				continue
			}
			return true
		case "🌳 show my ring view":
			showRingView(node)
		case "👋 exit":
			return false
		}
	}
}

// postJoin is the actions allowed once the node occupies a ring position
func postJoin(node peer.Peer) {
	prompt := &survey.Select{
		Message: "What do you want to do ?",
		Options: []string{
			"📤 put a value into the ring",
			"📥 get a value from the ring",
			"🌳 show my ring view",
			"👋 exit"},
	}
	var action string
	for {
		err := survey.AskOne(prompt, &action)
		if err != nil {
			fmt.Println(err)
			return
		}

		switch action {
		case "📤 put a value into the ring":
			if err := putValue(node); err != nil {
				color.Red("put failed: %v", err)
			}
		case "📥 get a value from the ring":
			if err := getValue(node); err != nil {
				color.Red("get failed: %v", err)
			}
		case "🌳 show my ring view":
			showRingView(node)
		case "👋 exit":
			return
		}
	}
}

// joinRing picks a bootstrap peer and runs the admission exchange
func joinRing(node peer.Peer, bootstraps []ring.PeerKeyLocation) error {
	if len(bootstraps) == 0 {
		return fmt.Errorf("no bootstrap peers configured")
	}

	options := make([]string, len(bootstraps))
	byOption := make(map[string]ring.PeerKeyLocation, len(bootstraps))
	for i, b := range bootstraps {
		options[i] = fmt.Sprintf("%s @ %s", b.Peer, b.Location)
		byOption[options[i]] = b
	}
	var choice string
	err := survey.AskOne(&survey.Select{
		Message: "Which bootstrap peer ?",
		Options: options,
	}, &choice)
	if err != nil {
		return err
	}

	if err := node.JoinRing(byOption[choice]); err != nil {
		return err
	}
	color.HiGreen("joined the ring at location %s", node.Location())
	return nil
}

// putValue stores a value and prints its retrieval key
func putValue(node peer.Peer) error {
	var value string
	err := survey.AskOne(&survey.Input{Message: "Enter the value to store: "}, &value)
	if err != nil {
		return err
	}

	key, err := node.Put([]byte(value))
	if err != nil {
		return err
	}
	color.HiGreen("value stored, retrieval key := %s", key)
	return nil
}

// getValue looks a value up by its ring location
func getValue(node peer.Peer) error {
	var input string
	err := survey.AskOne(
		&survey.Input{Message: "Enter the retrieval key: "},
		&input,
		survey.WithValidator(locationValidator))
	if err != nil {
		return err
	}

	pos, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return err
	}
	key, err := ring.NewLocation(pos)
	if err != nil {
		return err
	}

	value, err := node.Get(key)
	if err != nil {
		return err
	}
	color.HiGreen("value := %q", value)
	return nil
}

// showRingView prints the node's topology view as a tree
func showRingView(node peer.Peer) {
	var root gotree.Tree
	if loc := node.Location(); loc != nil {
		root = gotree.New(fmt.Sprintf("%s @ %s", node.Key(), loc))
	} else {
		root = gotree.New(fmt.Sprintf("%s (not joined)", node.Key()))
	}
	for _, neighbor := range node.Neighbors() {
		root.Add(fmt.Sprintf("%s @ %s", neighbor.Peer, neighbor.Location))
	}
	color.Yellow("%s", root.Print())
}
